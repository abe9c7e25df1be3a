// Package models defines the core domain models for the ledger engine.
//
// # Models
//
//   - Participant: a person known to the bot, matched by phone number
//   - Group: a set of participants who share expenses, plus ghost members
//   - Expense: a shared or personal expense in the home currency
//   - Payment: a direct settlement between two group members
//   - Category: a personal-mode expense category (soft-deleted, never purged)
//   - PersonalPayment: a personal-mode payment record (text, audio or receipt)
//   - Recurrent: a fixed monthly personal expense template
//
// # Design Principles
//
//  1. All money amounts are decimal.Decimal in the home currency; when a
//     message used a foreign currency the original amount and currency are
//     kept alongside for display.
//  2. Relationships use ID strings instead of pointers; no circular refs.
//  3. Participants and categories referenced by historical records are never
//     hard-deleted.
package models
