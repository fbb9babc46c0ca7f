// Package billing manages clients, products and invoices.
//
// Relations are never loaded implicitly. Callers ask the Repository for the
// parts they need (LoadRegion, LoadInvoices, LoadItems), so every query an
// endpoint runs is visible at the call site.
//
// Client photos are kept in object storage under clients/<id>/<uuid><ext>;
// the client row stores only the object key.
package billing
