// Package formula synthesizes the per-layer formulas that bind consumer
// layers to a controller.
//
// Every formula kind has two projections with the same semantics:
//
//   - [Render] produces the expression text a compositing host evaluates
//     once per frame. The text names the controller layer and reads its
//     effect parameters, so the host keeps evaluating it live as the user
//     moves sliders.
//   - [Evaluate] and the pure functions it is built from ([Growth],
//     [CircularPosition], [DistanceScale], [YDrivenScale], ...) compute the
//     same value natively for a given [Frame].
//
// # Kinds
//
//   - [KindCircularPosition]: staggered spiral around the composition center
//   - [KindCircularScale]: uniform grow-in from 0 to 100%
//   - [KindGridScale]: scale eased from Max Scale to Min Scale by distance
//   - [KindGridZOffset]: pushes 3D layers back in Z by distance
//   - [KindYDrivenScale]: scale remapped by distance to a moving controller
//
// # Guarding
//
// A guarded formula falls back to the property's own value when the
// controller layer no longer exists. Unguarded formulas fail in the host
// instead. Guarding is chosen per binding through [Options].
package formula
