package domain

// Totals are the derived financial figures for one snapshot. Card and PayPal
// movements are modeled as deductions from the cash drawer on top of explicit
// cash-out lines; this is the normative business rule, not an accounting
// convention to correct.
type Totals struct {
	OutPartyCash   Amount `json:"outPartyCash"`
	OutPartyCard   Amount `json:"outPartyCard"`
	OutPartyPaypal Amount `json:"outPartyPaypal"`
	OutPartyTotal  Amount `json:"outPartyTotal"`

	MainCashIn  Amount `json:"mainCashIn"`
	MainCashOut Amount `json:"mainCashOut"`
	MainCard    Amount `json:"mainCard"`
	MainPaypal  Amount `json:"mainPaypal"`

	GrandCardTotal   Amount `json:"grandCardTotal"`
	GrandPaypalTotal Amount `json:"grandPaypalTotal"`

	FinalCashIn  Amount `json:"finalCashIn"`
	FinalCashOut Amount `json:"finalCashOut"`
	FinalBalance Amount `json:"finalBalance"`
}

// Aggregate derives all totals from a snapshot. It is pure and deterministic:
// the same snapshot always yields the same totals.
func Aggregate(s *Snapshot) Totals {
	var t Totals

	for _, e := range s.OutPartyEntries {
		switch e.Method {
		case MethodCard:
			t.OutPartyCard = t.OutPartyCard.Add(e.Amount)
		case MethodPaypal:
			t.OutPartyPaypal = t.OutPartyPaypal.Add(e.Amount)
		default:
			t.OutPartyCash = t.OutPartyCash.Add(e.Amount)
		}
	}
	t.OutPartyTotal = t.OutPartyCash.Add(t.OutPartyCard).Add(t.OutPartyPaypal)

	for _, e := range s.MainEntries {
		t.MainCashIn = t.MainCashIn.Add(e.CashIn)
		t.MainCashOut = t.MainCashOut.Add(e.CashOut)
		switch e.Method {
		case MethodCard:
			t.MainCard = t.MainCard.Add(e.CashIn)
		case MethodPaypal:
			t.MainPaypal = t.MainPaypal.Add(e.CashIn)
		}
	}

	t.GrandCardTotal = t.MainCard.Add(t.OutPartyCard)
	t.GrandPaypalTotal = t.MainPaypal.Add(t.OutPartyPaypal)

	// Every out-party amount counts as cash in regardless of method.
	t.FinalCashIn = t.MainCashIn.Add(t.OutPartyTotal)
	t.FinalCashOut = t.MainCashOut.Add(t.GrandCardTotal).Add(t.GrandPaypalTotal)
	t.FinalBalance = t.FinalCashIn.Sub(t.FinalCashOut)

	return t
}
