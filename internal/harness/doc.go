// Package harness runs YAML scenarios against the catalog view-models.
//
// A scenario scripts the gateway replies and the answers to confirmation
// prompts, drives the list, detail and form view-models through a flow of
// actions, and checks assertions on what happened. Every gateway call,
// published state, notice, navigation request and prompt is recorded in
// a trace that can be compared against a golden file.
//
// # Scenario Format
//
//	name: delete_confirmed
//	description: "Confirming a delete removes the product and refetches"
//	gateway:
//	  ListEntries:
//	    - entries:
//	        - { id: 1, name: Caneca, price: "25" }
//	        - { id: 2, name: Livro, price: "40" }
//	    - entries:
//	        - { id: 1, name: Caneca, price: "25" }
//	  DeleteEntry:
//	    - {}
//	confirm: [true]
//	flow:
//	  - { screen: list, action: activate }
//	  - { screen: list, action: delete, id: 2 }
//	assertions:
//	  - { type: state, screen: list, phase: ready, names: [Caneca] }
//	  - { type: notice, title: Success }
//	  - type: calls
//	    calls: ["ListEntries(name.asc)", "DeleteEntry(id=2)", "ListEntries(name.asc)"]
//
// Gateway errors are written as { error: { code: transport, message: "..." } }
// with the codes of gateway.DataErrorCode.
//
// # Assertion Types
//
//   - state: the final phase of a screen, optionally its message and the
//     names it shows
//   - notice: a notice with the title (and message, level) was shown
//   - calls: the exact gateway calls
//   - call_count: how often one gateway method was called
//   - navigation: a navigation target (and id) or a back navigation
//
// Flow steps run sequentially on one goroutine, so traces are identical
// across runs.
package harness
