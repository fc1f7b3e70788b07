// Package postgres implements the reconciliation store on PostgreSQL using pgx.
//
// Schema statements run in autocommit mode before the sync transaction so
// that "already exists" failures do not poison it. Bulk inserts use unnest
// arrays with RETURNING; problem-tag links are sent as one batch with
// ON CONFLICT DO NOTHING.
package postgres
