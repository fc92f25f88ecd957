// Package assertions evaluates the expect metadata of a request against
// its recorded response.
//
// Supported expectations:
//   - Status code (expect status 200)
//   - Header equality or presence (expect header Content-Type: application/json)
//   - Body substring (expect body-contains "created")
//   - JSON body path (expect body-path $.data.id 42)
//   - JSON Schema validation (expect schema ./user.schema.json)
//   - Response time ceiling (expect max-time 500ms)
//
// Every expectation yields a Result; evaluation never aborts early.
package assertions
