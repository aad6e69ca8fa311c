package sheets

import (
	"fmt"
	"strings"
)

// Remote register sheets are hand-maintained and their column headers drift
// ("Owner Name", "Name of Owner", "OWNER_NAME"). Headers are normalized by
// stripping everything but letters and digits and lowercasing, then looked
// up in an alias table. A header that resolves to no canonical field is an
// error, not a silent skip, so a renamed critical column fails loudly
// instead of dropping data.

// Canonical field names used by the adapters.
const (
	FieldAssessmentNumber = "assessmentNumber"
	FieldOldAssessmentNo  = "oldAssessmentNumber"
	FieldOwnerName        = "ownerName"
	FieldGuardianName     = "guardianName"
	FieldMobileNumber     = "mobileNumber"
	FieldDoorNumber       = "doorNumber"
	FieldDateOfPayment    = "dateOfPayment"
	FieldReceiptNo        = "receiptNo"
	FieldPaymentSource    = "paymentSource"
	FieldPaymentMode      = "paymentMode"
	FieldDueYear          = "dueYear"
	FieldDemandCategory   = "demandCategory"
	FieldAmount           = "amount"
	FieldStatus           = "status"
	FieldCFMSStatus       = "cfmsStatus"
)

var headerAliases = map[string]string{
	"assessmentno":     FieldAssessmentNumber,
	"assessmentnumber": FieldAssessmentNumber,
	"newassessmentno":  FieldAssessmentNumber,
	"oldassessmentno":  FieldOldAssessmentNo,
	"ownername":        FieldOwnerName,
	"nameofowner":      FieldOwnerName,
	"guardianname":     FieldGuardianName,
	"fatherhusbandname": FieldGuardianName,
	"mobile":           FieldMobileNumber,
	"mobileno":         FieldMobileNumber,
	"mobilenumber":     FieldMobileNumber,
	"doorno":           FieldDoorNumber,
	"doornumber":       FieldDoorNumber,
	"dateofpayment":    FieldDateOfPayment,
	"paymentdate":      FieldDateOfPayment,
	"receiptno":        FieldReceiptNo,
	"receiptnumber":    FieldReceiptNo,
	"paymentsource":    FieldPaymentSource,
	"paymentmode":      FieldPaymentMode,
	"modeofpayment":    FieldPaymentMode,
	"dueyear":          FieldDueYear,
	"demandcategory":   FieldDemandCategory,
	"amount":           FieldAmount,
	"totaltax":         FieldAmount,
	"totaltaxrs":       FieldAmount,
	"receiptstatus":    FieldStatus,
	"status":           FieldStatus,
	"cfmsstatus":       FieldCFMSStatus,
	"settlementatcfms": FieldCFMSStatus,
}

// criticalFields must all be resolvable before an adapter trusts a sheet.
var criticalFields = []string{
	FieldAssessmentNumber,
	FieldReceiptNo,
	FieldDateOfPayment,
	FieldAmount,
}

func normalizeHeader(header string) string {
	var b strings.Builder
	for _, r := range header {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

// CanonicalField resolves a raw sheet header to its canonical field name.
func CanonicalField(header string) (string, error) {
	canonical, ok := headerAliases[normalizeHeader(header)]
	if !ok {
		return "", fmt.Errorf("unknown register column %q", header)
	}
	return canonical, nil
}

// MapHeaders resolves a header row to canonical field -> column index.
// Unresolvable headers and missing critical fields are errors.
func MapHeaders(headers []string) (map[string]int, error) {
	cols := make(map[string]int, len(headers))
	for i, h := range headers {
		if strings.TrimSpace(h) == "" {
			continue
		}
		canonical, err := CanonicalField(h)
		if err != nil {
			return nil, err
		}
		if _, dup := cols[canonical]; !dup {
			cols[canonical] = i
		}
	}
	for _, f := range criticalFields {
		if _, ok := cols[f]; !ok {
			return nil, fmt.Errorf("register sheet is missing required column %q", f)
		}
	}
	return cols, nil
}
