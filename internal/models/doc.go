// Package models defines the core domain types for HisaabHub.
//
// # Design Principles
//
// 1. **Plain structs**: models carry data only; computations live in the
// calculator package and persistence in the storage package.
// 2. **Avoid circular references**: relationships use ID strings instead of
// pointers.
// 3. **One funding representation**: an expense records who funded it as a
// list of Payment entries. A single-payer expense carries exactly one
// Payment covering the full amount, so "single payer" and "multiple payers"
// need no mutually exclusive fields.
// 4. **Soft delete**: expenses are deactivated, never removed, so historical
// shares and payments survive for display while balance aggregation skips
// them.
package models
