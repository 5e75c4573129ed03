package filter

import "testing"

const swapTag = DefaultModuleAddress + "::" + DefaultModuleName + "::" + DefaultEventName

func TestIncludedEventType(t *testing.T) {
	cases := []struct {
		name string
		tag  string
		want bool
	}{
		{"exact", swapTag, true},
		{"empty", "", false},
		{"address only", DefaultModuleAddress, false},
		{"two segments", DefaultModuleAddress + "::" + DefaultModuleName, false},
		{"extra segment", swapTag + "::Extra", false},
		{"generic suffix", swapTag + "<0x1::aptos_coin::AptosCoin>", false},
		{"other address", "0x1::" + DefaultModuleName + "::" + DefaultEventName, false},
		{"other module", DefaultModuleAddress + "::coin::" + DefaultEventName, false},
		{"other name", DefaultModuleAddress + "::" + DefaultModuleName + "::MintEvent", false},
		{"separators only", "::::", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IncludedEventType(tc.tag); got != tc.want {
				t.Fatalf("IncludedEventType(%q) = %v, want %v", tc.tag, got, tc.want)
			}
		})
	}
}

func TestFilterMultipleFamilies(t *testing.T) {
	deposit := EventType{Address: "0x1", Module: "coin", Name: "DepositEvent"}
	f := New(DefaultEventType(), deposit)

	if !f.Included(swapTag) {
		t.Fatalf("swap tag should be included")
	}
	if !f.Included("0x1::coin::DepositEvent") {
		t.Fatalf("deposit tag should be included")
	}
	if f.Included("0x1::coin::WithdrawEvent") {
		t.Fatalf("withdraw tag should be excluded")
	}
	if len(f.Types()) != 2 {
		t.Fatalf("tracked types mismatch: %v", f.Types())
	}
}

func TestParseEventType(t *testing.T) {
	got, err := ParseEventType(swapTag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != DefaultEventType() {
		t.Fatalf("parsed mismatch: %+v", got)
	}
	if got.String() != swapTag {
		t.Fatalf("string mismatch: %s", got.String())
	}

	for _, bad := range []string{"", "0x1::coin", "0x1::coin::A::B", "0x1::::A"} {
		if _, err := ParseEventType(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
