// Package models defines the core domain models for Tally.
//
// # Models
//
//   - User: a registered person, identified by a stable external ID
//   - Group: a set of users who share expenses
//   - GroupMembership: the user/group association (many-to-many)
//   - Expense: a shared cost recorded against a group
//   - ExpenseShare: one member's portion of an expense
//
// # Design Principles
//
//  1. **Immutable by replacement**: models are created, read and deleted,
//     never mutated in place across ownership boundaries.
//  2. **Plain values**: relationships are expressed by ID fields, not
//     pointers, so models round-trip cleanly through the store.
//  3. **Integer money**: amounts are in the smallest currency unit.
//     No floats anywhere near money.
package models
