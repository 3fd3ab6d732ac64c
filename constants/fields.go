package constants

// Module is the caller-supplied document type hint.
type Module string

const (
	ModuleInvoice Module = "invoice"
	ModuleExpense Module = "expense"
	ModuleTender  Module = "tender"
	ModuleTable   Module = "table"
)

// ParseModule maps a raw hint to a known Module, defaulting to invoice.
func ParseModule(s string) (Module, bool) {
	switch Module(s) {
	case ModuleInvoice, ModuleExpense, ModuleTender, ModuleTable:
		return Module(s), true
	case "":
		return ModuleInvoice, false
	default:
		return ModuleInvoice, false
	}
}

// Field is a stable field-set key. The same keys are used for every module;
// fields a module does not produce stay null in the result.
type Field string

const (
	FieldHT               Field = "ht"
	FieldTVAPct           Field = "tva_pct"
	FieldTVAAmount        Field = "tva_amount"
	FieldTTC              Field = "ttc"
	FieldNetToPay         Field = "net_to_pay"
	FieldSIRET            Field = "siret"
	FieldSupplier         Field = "supplier"
	FieldInvoiceNumber    Field = "invoice_number"
	FieldDocumentDate     Field = "document_date"
	FieldTenderDeadline   Field = "tender_deadline"
	FieldTenderBudget     Field = "tender_budget"
	FieldTenderReference  Field = "tender_reference"
	FieldTenderAuthority  Field = "tender_authority"
	FieldTenderPostalCode Field = "tender_postal_code"
	FieldTenderCity       Field = "tender_city"
)

// AllFields lists every field-set key in serialization order.
var AllFields = []Field{
	FieldHT,
	FieldTVAPct,
	FieldTVAAmount,
	FieldTTC,
	FieldNetToPay,
	FieldSIRET,
	FieldSupplier,
	FieldInvoiceNumber,
	FieldDocumentDate,
	FieldTenderDeadline,
	FieldTenderBudget,
	FieldTenderReference,
	FieldTenderAuthority,
	FieldTenderPostalCode,
	FieldTenderCity,
}

func FieldsAsStringSlice() []string {
	result := make([]string, len(AllFields))
	for i, f := range AllFields {
		result[i] = string(f)
	}
	return result
}
