// Package outbox persists media artifacts and their transfer records in
// SQLite.
//
// Two tables back the pipeline: artifacts hold processed media metadata,
// outbox_entries track the delivery lifecycle layered on top. The transfer
// state column (pending/sending/sent/received/failed) is owned by the
// transfer manager; the phase column (compressing/encrypting/ready) is
// owned by whichever caller prepares the artifact and exists purely for
// progress display. Keeping the two in separate columns keeps write
// ownership unambiguous.
//
// The database is working state for in-flight transfers, not an archive;
// the retention sweep purges records after RetentionPeriod. Schema changes
// bump schemaVersion in schema.go.
package outbox
