package tag

import "testing"

func TestPartitionTags(t *testing.T) {
	tags := []Tag{
		{TagID: "P1", PartnerID: "u-1", Status: StatusActive},
		{TagID: "V1", VehicleID: "v-1", Status: StatusActive},
		{TagID: "U1", Status: StatusActive},
		{TagID: "M1", PartnerID: "u-2", VehicleID: "v-2", Status: StatusActive},
	}

	p := PartitionTags(tags, []string{"P1", "V1", "U1", "M1", "GHOST", "GHOST", ""})

	if len(p.Person) != 1 || p.Person[0].TagID != "P1" {
		t.Fatalf("expected one person tag P1, got %+v", p.Person)
	}
	if len(p.Vehicle) != 1 || p.Vehicle[0].TagID != "V1" {
		t.Fatalf("expected one vehicle tag V1, got %+v", p.Vehicle)
	}
	if len(p.Unassigned) != 1 || p.Unassigned[0].TagID != "U1" {
		t.Fatalf("expected one unassigned tag U1, got %+v", p.Unassigned)
	}
	if len(p.Mixed) != 1 || p.Mixed[0].TagID != "M1" {
		t.Fatalf("expected one mixed tag M1, got %+v", p.Mixed)
	}
	// 重复和空串只算一次缺失
	if len(p.Missing) != 1 || p.Missing[0] != "GHOST" {
		t.Fatalf("expected missing [GHOST], got %v", p.Missing)
	}
}

func TestPartitionInactive(t *testing.T) {
	tags := []Tag{
		{TagID: "A", PartnerID: "u-1", Status: StatusActive},
		{TagID: "B", VehicleID: "v-1", Status: StatusPending},
		{TagID: "C", VehicleID: "v-2", Status: StatusLost},
	}
	p := PartitionTags(tags, []string{"A", "B", "C"})

	inactive := p.Inactive()
	if len(inactive) != 2 {
		t.Fatalf("expected 2 inactive tags, got %d", len(inactive))
	}
	ids := TagIDs(inactive)
	if ids[0] != "B" && ids[1] != "B" {
		t.Fatalf("expected B among inactive, got %v", ids)
	}
}

func TestClassify(t *testing.T) {
	if got := (Tag{PartnerID: "u"}).Classify(); got != ClassPerson {
		t.Fatalf("expected person, got %s", got)
	}
	if got := (Tag{VehicleID: "v"}).Classify(); got != ClassVehicle {
		t.Fatalf("expected vehicle, got %s", got)
	}
	if got := (Tag{PartnerID: "u", VehicleID: "v"}).Classify(); got != ClassMixed {
		t.Fatalf("expected mixed, got %s", got)
	}
	if got := (Tag{}).Classify(); got != ClassUnassigned {
		t.Fatalf("expected unassigned, got %s", got)
	}
}
