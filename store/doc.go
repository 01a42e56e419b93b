// Package store provides a DynamoDB data access layer for single-hash-key tables.
//
// The store only relies on the primitive operations every partitioned key-value
// store offers: GetItem, PutItem, DeleteItem, and paginated Scan. There are no
// conditional writes, transactions, or secondary indexes.
//
// # Records
//
// Every stored type implements [Record]:
//
//	type Record interface {
//	    TableName() string
//	    KeyAttribute() string
//	    PrimaryKey() string
//	}
//
// TableName and KeyAttribute are evaluated on the zero value, so they must be
// constants for the type. [Table] uses them to address items without any
// per-type code:
//
//	students := store.NewTable[model.Student](s)
//	students.Provision(ctx)
//	err := students.Put(ctx, st.ID, st)
//	st, ok, err := students.Get(ctx, st.ID)
//
// # Encoding
//
// Records are converted with attributevalue using `dynamodbav` struct tags.
// Time values that must not depend on the SDK's encoding use [Timestamp],
// which is always stored as an RFC 3339 string in UTC.
//
// # Provisioning
//
// [Store.Provision] describes the table and creates it if the describe fails.
// Creation errors are logged and swallowed; a table that really does not exist
// surfaces later as an error from the first item operation.
//
// # Errors
//
//   - [OpError] - wraps every SDK/transport failure with the operation, table, and key
//   - [ErrEncoding] - record/item conversion failed (wrapped inside an OpError)
//   - [ErrEmptyKey] - empty primary key value
//   - [ErrKeyMismatch] - Put key differs from the record's PrimaryKey
//
// A missing item is not an error: Get reports it with a false boolean.
package store
