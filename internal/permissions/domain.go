package permissions

// Permission represents an atomic capability token. Names are lower-case
// verb:object identifiers. The catalog is append-only in practice:
// permissions are added by deployment-time seeding and never deleted while a
// role or override references them.
type Permission struct {
	ID          int64
	Name        string
	Description string
}
