// Package console implements the form controllers behind the venue admin screens.
//
// Controllers hold all screen state and never block. Operations that need the network return a [Task]; the caller
// runs it wherever it likes (bubbletea runs it as a tea.Cmd) and hands the [Result] back through Apply.
// Each task is stamped with an operation token, and Apply drops results whose token is no longer current, so a
// response that arrives after the screen moved on is ignored.
//
// [Settings] follows the state machine
//
//	Unauthenticated -> Loading -> Ready <-> Submitting -> Ready
//	                   Loading -> LoadError
//
// and accepts edits only in Ready. [Login] validates credentials locally before issuing a request and stores the
// session on success.
package console
