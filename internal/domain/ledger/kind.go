package ledger

// RecordKind identifies the kind of financial record a ledger entry
// represents. Document numbering is independent per (store, kind).
type RecordKind string

const (
	KindExpense    RecordKind = "EXPENSE"    // money paid out for operating costs
	KindPurchase   RecordKind = "PURCHASE"   // money owed/paid to suppliers
	KindSale       RecordKind = "SALE"       // money earned from sales
	KindReceivable RecordKind = "RECEIVABLE" // money owed by customers
)

// AllKinds lists every supported record kind
var AllKinds = []RecordKind{KindExpense, KindPurchase, KindSale, KindReceivable}

// IsValid checks if the kind belongs to the closed set
func (k RecordKind) IsValid() bool {
	switch k {
	case KindExpense, KindPurchase, KindSale, KindReceivable:
		return true
	}
	return false
}

// String returns the string representation of the kind
func (k RecordKind) String() string {
	return string(k)
}

// ParseRecordKind maps a URL/path token to a RecordKind.
// Accepted tokens are the lowercase singular names used in routes.
func ParseRecordKind(s string) (RecordKind, bool) {
	switch s {
	case "expenses", "expense":
		return KindExpense, true
	case "purchases", "purchase":
		return KindPurchase, true
	case "sales", "sale":
		return KindSale, true
	case "receivables", "receivable":
		return KindReceivable, true
	}
	return "", false
}

// PathToken returns the route segment used for this kind
func (k RecordKind) PathToken() string {
	switch k {
	case KindExpense:
		return "expenses"
	case KindPurchase:
		return "purchases"
	case KindSale:
		return "sales"
	case KindReceivable:
		return "receivables"
	default:
		return ""
	}
}
