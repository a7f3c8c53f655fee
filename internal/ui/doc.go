// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has two screens:
//  1. [LoginView] : username and password form, shown whenever no usable session is stored
//  2. [SettingsView] : venue heading, charge toggle, the five category amounts, a live bar chart, and save
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Screen logic lives in the console controllers; the model only maps keys to controller calls, runs the
// returned tasks as commands, and renders. Each screen owns a context that is cancelled when it is left, and
// results that arrive afterwards are dropped by the controllers.
//
// Notifications are shown as a toast line that clears itself after the configured duration.
package ui
