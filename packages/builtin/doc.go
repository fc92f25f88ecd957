// Package builtin provides the dynamic-value functions available in
// request files.
//
// Available functions:
//   - guid: random UUID v4
//   - randomInt min max: random integer in [min, max)
//   - timestamp [offset unit]: Unix timestamp in seconds, UTC
//   - datetime format [offset unit]: formatted UTC time
//   - localDatetime format [offset unit]: formatted local time
//
// Functions are invoked with the {{$name args}} syntax. The format
// argument is either iso8601, rfc1123, or a quoted custom pattern such
// as "yyyy-MM-dd". Offsets take a signed amount and a unit out of
// y, M, w, d, h, m, s, ms.
package builtin
