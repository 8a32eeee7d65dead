// Package ir provides the canonical, vendor-neutral request and response
// model for weavebridge.
//
// This package contains type definitions, wire decoding and the shared error
// taxonomy. All other internal packages import ir; ir imports nothing
// internal. This keeps ir the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Expression, Field and ComparisonValue are sealed interfaces; unknown
//     wire tags decode to Unknown* variants instead of failing at decode time
//   - JSON numbers decode as json.Number so int literals stay exact
//   - All JSON tags use snake_case
//   - Every translation failure is an *Error carrying an ErrorCode
package ir
