package constants

// DocType labels what kind of purchasing document a file turned out to be.
type DocType string

const (
	DocTypeInvoice DocType = "invoice"
	DocTypePO      DocType = "po"
	DocTypeUnknown DocType = "unknown"
)
