package domain

import "testing"

func TestStagesFor(t *testing.T) {
	sale := StagesFor(TypeSale)
	if len(sale) != 4 || sale[0] != StagePreListing || sale[3] != StageEscrowClosing {
		t.Fatalf("unexpected sale stages: %v", sale)
	}

	purchase := StagesFor(TypePurchase)
	if len(purchase) != 5 || purchase[0] != StagePreApproval || purchase[4] != StageEscrowClosing {
		t.Fatalf("unexpected purchase stages: %v", purchase)
	}

	lease := StagesFor(TypeLease)
	if len(lease) != len(sale) || lease[0] != sale[0] {
		t.Fatalf("lease must follow the sale lifecycle, got %v", lease)
	}
}

func TestStageOrderAllowed(t *testing.T) {
	cases := []struct {
		txType  TransactionType
		current Stage
		target  Stage
		want    bool
	}{
		{TypeSale, StagePreListing, StageListing, true},
		{TypeSale, StageListing, StageUnderContract, true},
		{TypeSale, StagePreListing, StageUnderContract, false}, // no skipping
		{TypeSale, StageListing, StagePreListing, false},       // no backward
		{TypeSale, StageListing, StageListing, false},          // no self-loop
		{TypeSale, StagePreListing, StageOffer, false},         // not in set
		{TypePurchase, StageOffer, StageUnderContract, true},
		{TypePurchase, StagePreApproval, StageOffer, false},
	}
	for _, tc := range cases {
		got := StageOrderAllowed(tc.txType, tc.current, tc.target)
		if got != tc.want {
			t.Fatalf("StageOrderAllowed(%s, %s -> %s) = %v, want %v",
				tc.txType, tc.current, tc.target, got, tc.want)
		}
	}
}

func TestInitialAndFinalStage(t *testing.T) {
	if InitialStage(TypePurchase) != StagePreApproval {
		t.Fatalf("unexpected initial purchase stage: %s", InitialStage(TypePurchase))
	}
	if FinalStage(TypeSale) != StageEscrowClosing {
		t.Fatalf("unexpected final sale stage: %s", FinalStage(TypeSale))
	}
}
