package storage

import (
	"context"
	"errors"
)

const (
	CollectionShips             = "ships"
	CollectionCertificates      = "certificates"
	CollectionAuditCertificates = "audit_certificates"
	CollectionAuditReports      = "audit_reports"
)

var ErrNotFound = errors.New("document not found")

// Filter matches documents by field equality. Keys are bson field names.
type Filter map[string]any

// Store is a generic keyed document store. Documents are bson-tagged structs
// with a string _id.
type Store interface {
	FindOne(ctx context.Context, collection string, filter Filter, out any) error
	// FindAll decodes every match into out, a pointer to a slice.
	FindAll(ctx context.Context, collection string, filter Filter, out any) error
	Create(ctx context.Context, collection string, doc any) error
	// Update sets the given fields on the document with id.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Replace swaps the whole document with id for doc.
	Replace(ctx context.Context, collection, id string, doc any) error
	Delete(ctx context.Context, collection, id string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
