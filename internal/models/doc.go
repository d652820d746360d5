// Package models defines the core domain records for Racha.
//
// # Records
//
//   - Table: a shared tab identified by a short unique code
//   - Member: a participant of a table who may pay for and consume expenses
//   - Expense: a single purchase with one payer and a set of consumers
//   - ClosureRecord: an append-only entry written when a table is closed
//   - Bar: a venue account that may own tables
//
// Records are plain values. They carry no behaviour beyond small lookup
// helpers and deep copies; balance rules live in the calculator package and
// lifecycle rules in the ledger package.
//
// # Design Principles
//
//  1. Relationships use ID strings, never pointers (a member is referenced by
//     its ID from Expense.PaidBy and Expense.Consumers)
//  2. Member.Balance is derived; only recomputation writes it
//  3. Timestamps are Unix seconds
package models
