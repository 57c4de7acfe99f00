package state

import "testing"

func TestWarmSet_SlotWarmsAddress(t *testing.T) {
	ws := newWarmSet()
	a := testAddr(1)

	addrWarm, slotWarm := ws.warmSlot(a, testHash(1))
	if addrWarm || slotWarm {
		t.Fatal("first warming must report both cold")
	}
	if !ws.containsAddress(a) {
		t.Fatal("warming a slot must warm its address")
	}

	addrWarm, slotWarm = ws.warmSlot(a, testHash(1))
	if !addrWarm || !slotWarm {
		t.Fatal("second warming must report both warm")
	}
}

func TestWarmSet_ContainsSlotColdAddress(t *testing.T) {
	ws := newWarmSet()
	addrWarm, slotWarm := ws.containsSlot(testAddr(1), testHash(1))
	if addrWarm || slotWarm {
		t.Fatal("cold address must report both cold")
	}
}

func TestWarmSet_CoolRemovesEntries(t *testing.T) {
	ws := newWarmSet()
	a := testAddr(1)
	ws.warmSlot(a, testHash(1))

	ws.coolSlot(a, testHash(1))
	if _, slotWarm := ws.containsSlot(a, testHash(1)); slotWarm {
		t.Fatal("cooled slot must be cold")
	}
	if !ws.containsAddress(a) {
		t.Fatal("cooling a slot must not cool the address")
	}

	ws.coolAddress(a)
	if ws.containsAddress(a) {
		t.Fatal("cooled address must be cold")
	}
}

func TestWarmSet_AddressOnlyWarming(t *testing.T) {
	ws := newWarmSet()
	a := testAddr(1)

	if ws.warmAddress(a) {
		t.Fatal("first warming must report cold")
	}
	if !ws.warmAddress(a) {
		t.Fatal("second warming must report warm")
	}
	if _, slotWarm := ws.containsSlot(a, testHash(1)); slotWarm {
		t.Fatal("address warmth must not imply slot warmth")
	}
}
