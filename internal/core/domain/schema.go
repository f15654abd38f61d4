package domain

// SchemaDiff reports the differences between two introspected schemas.
// Used to detect breaking API changes between versions.
type SchemaDiff struct {
	// AddedTypes lists type names present only in the new schema.
	AddedTypes []string `json:"added_types"`
	// RemovedTypes lists type names present only in the old schema.
	RemovedTypes []string `json:"removed_types"`
	// AddedFields maps type name to fields present only in the new schema.
	AddedFields map[string][]string `json:"added_fields"`
	// RemovedFields maps type name to fields present only in the old schema.
	RemovedFields map[string][]string `json:"removed_fields"`
}

// Breaking reports whether the diff removes anything existing queries
// could depend on.
func (d SchemaDiff) Breaking() bool {
	return len(d.RemovedTypes) > 0 || len(d.RemovedFields) > 0
}
