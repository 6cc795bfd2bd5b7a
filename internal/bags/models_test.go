package bags

import "testing"

func TestStatusOrder(t *testing.T) {
	if !StatusCreated.Before(StatusPrepared) {
		t.Fatal("created should precede prepared")
	}
	if !StatusUploaded.Before(StatusCleanedUp) {
		t.Fatal("uploaded should precede cleaned_up")
	}
	if StatusCleanedUp.Before(StatusCreated) {
		t.Fatal("cleaned_up should not precede created")
	}
	if Status("bogus").Index() != -1 {
		t.Fatal("unknown status should have index -1")
	}
}

func TestStatusOrderIsStrict(t *testing.T) {
	all := AllStatuses()
	for i := 1; i < len(all); i++ {
		if !all[i-1].Before(all[i]) {
			t.Fatalf("%s should precede %s", all[i-1], all[i])
		}
	}
}

func TestParseStatus(t *testing.T) {
	status, ok := ParseStatus("  Making_JP2s ")
	if !ok || status != StatusMakingJP2s {
		t.Fatalf("ParseStatus: got %q, %v", status, ok)
	}
	if _, ok := ParseStatus("unknown"); ok {
		t.Fatal("unknown status should not parse")
	}
}

func TestRollbackTargets(t *testing.T) {
	target, ok := RollbackTarget(StatusMakingJP2s)
	if !ok || target != StatusTIFFsNormalized {
		t.Fatalf("unexpected rollback target %q", target)
	}
	if _, ok := RollbackTarget(StatusPrepared); ok {
		t.Fatal("resting status should have no rollback target")
	}
	for marker, target := range rollbackTargets {
		if !marker.InProgress() {
			t.Fatalf("%s should report in-progress", marker)
		}
		if !target.Before(marker) {
			t.Fatalf("rollback target %s should precede %s", target, marker)
		}
	}
}

func TestDeriveIdentifierIsDeterministic(t *testing.T) {
	uri := "/repositories/2/archival_objects/1234"
	a := DeriveIdentifier(uri)
	b := DeriveIdentifier(uri)
	if a == "" || a != b {
		t.Fatalf("derived identifier not stable: %q vs %q", a, b)
	}
	if DeriveIdentifier("/repositories/2/archival_objects/5678") == a {
		t.Fatal("distinct uris should derive distinct identifiers")
	}
}
