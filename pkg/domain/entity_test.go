package domain

import "testing"

func TestNameSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		min  float64
	}{
		{"Jensen Huang", "jensen huang", 0.999},
		{"Jensen Huang", "Jensen  Huang ", 0.999},
		{"Jensen Huang", "Jensen Huan", 0.85},
		{"Jensen Huang", "Completely Different Name", 0.0},
	}
	for _, c := range cases {
		got := NameSimilarity(c.a, c.b)
		if got < c.min {
			t.Errorf("NameSimilarity(%q, %q) = %v, want >= %v", c.a, c.b, got, c.min)
		}
	}
}

func TestExactDedup(t *testing.T) {
	s := NewInvestigationState("inv-1", Subject{FullName: "Jensen Huang"}, 10, 0)

	a := NewEntity("NVIDIA", EntityOrganization, 0.6, 1)
	a.Sources = []string{"https://a.example"}
	a.Aliases = []string{"Nvidia Corp"}

	b := NewEntity("nvidia", EntityOrganization, 0.9, 2)
	b.Sources = []string{"https://b.example"}
	b.Attributes = map[string]string{"ticker": "NVDA"}

	s.AddEntity(a)
	s.AddEntity(b)

	if len(s.Entities) != 1 {
		t.Fatalf("expected exact dedup to collapse to 1 entity, got %d", len(s.Entities))
	}
	merged := s.Entities[0]
	if merged.Confidence != 0.9 {
		t.Errorf("expected merged confidence = max(0.6, 0.9) = 0.9, got %v", merged.Confidence)
	}
	if len(merged.Sources) != 2 {
		t.Errorf("expected union of 2 sources, got %d", len(merged.Sources))
	}
	if merged.Attributes["ticker"] != "NVDA" {
		t.Errorf("expected attribute union to carry ticker, got %v", merged.Attributes)
	}
}

func TestFuzzyDedup(t *testing.T) {
	s := NewInvestigationState("inv-1", Subject{}, 10, 0.85)

	a := NewEntity("Jensen Huang", EntityPerson, 0.7, 1)
	b := NewEntity("Jensen Huan", EntityPerson, 0.8, 2) // one char dropped

	s.AddEntity(a)
	s.AddEntity(b)
	if len(s.Entities) != 1 {
		t.Fatalf("expected fuzzy dedup at threshold 0.85 to collapse, got %d entities", len(s.Entities))
	}

	s2 := NewInvestigationState("inv-2", Subject{}, 10, 0.85)
	c := NewEntity("Jensen Huang", EntityPerson, 0.7, 1)
	d := NewEntity("Someone Else Entirely", EntityPerson, 0.8, 2)
	s2.AddEntity(c)
	s2.AddEntity(d)
	if len(s2.Entities) != 2 {
		t.Fatalf("expected dissimilar names to stay separate, got %d entities", len(s2.Entities))
	}
}

func TestFuzzyDedupDisabledByZeroThreshold(t *testing.T) {
	s := NewInvestigationState("inv-1", Subject{}, 10, 0)
	a := NewEntity("Jensen Huang", EntityPerson, 0.7, 1)
	b := NewEntity("Jensen Huan", EntityPerson, 0.8, 2)
	s.AddEntity(a)
	s.AddEntity(b)
	if len(s.Entities) != 2 {
		t.Fatalf("expected fuzzy dedup disabled (threshold 0) to keep both entities, got %d", len(s.Entities))
	}
}

func TestConnectionIdempotence(t *testing.T) {
	s := NewInvestigationState("inv-1", Subject{}, 10, 0)
	c1 := NewConnection("e1", "e2", RelWorksAt, 0.5)
	c1.Sources = []string{"https://a.example"}
	c2 := NewConnection("e1", "e2", RelWorksAt, 0.9)
	c2.Sources = []string{"https://b.example"}

	s.AddConnection(c1)
	s.AddConnection(c2)

	if len(s.Connections) != 1 {
		t.Fatalf("expected (src,tgt,type) uniqueness to collapse to 1, got %d", len(s.Connections))
	}
	merged := s.Connections[0]
	if merged.Confidence != 0.9 {
		t.Errorf("expected max confidence 0.9, got %v", merged.Confidence)
	}
	if len(merged.Sources) != 2 {
		t.Errorf("expected union of 2 sources, got %d", len(merged.Sources))
	}
}

func TestInvalidRelationshipTypeFallsBackToRelatedTo(t *testing.T) {
	c := NewConnection("e1", "e2", RelationshipType("NOT_A_REAL_TYPE"), 0.5)
	if c.Type != RelRelatedTo {
		t.Errorf("expected fallback to RELATED_TO, got %v", c.Type)
	}
}
