package warehouse

import "testing"

func TestRegistryDataKindIdForDedupesByType(t *testing.T) {
	r := NewRegistry()
	k1 := r.DataKindIdFor(NewDataLayout[posVal](StorageTable))
	k2 := r.DataKindIdFor(NewDataLayout[posVal](StorageTable))
	if k1 != k2 {
		t.Fatalf("got distinct kinds %d and %d for the same type", k1, k2)
	}
	k3 := r.DataKindIdFor(NewDataLayout[nameVal](StorageTable))
	if k3 == k1 {
		t.Fatalf("distinct types were folded into the same kind")
	}
}

func TestRegistryDataKindIdForPanicsOnLayoutMismatch(t *testing.T) {
	r := NewRegistry()
	layout := NewDataLayout[posVal](StorageTable)
	r.DataKindIdFor(layout)

	mismatched := layout
	mismatched.Size = layout.Size + 8

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic on re-registering posVal with a different size")
		}
	}()
	r.DataKindIdFor(mismatched)
}

func TestRegistryRegisterNamedDataKindDedupesByName(t *testing.T) {
	r := NewRegistry()
	layout := NewDataLayout[posVal](StorageTable)
	layout.GoType = nil // force the anonymous path even though the Go type is known

	id1, err := r.RegisterNamedDataKind("scripted.position", layout)
	if err != nil {
		t.Fatalf("RegisterNamedDataKind: %v", err)
	}
	id2, err := r.RegisterNamedDataKind("scripted.position", layout)
	if err != nil {
		t.Fatalf("RegisterNamedDataKind (second call): %v", err)
	}
	if id1 != id2 {
		t.Fatalf("got distinct ids %d and %d for the same name", id1, id2)
	}

	id3, err := r.RegisterNamedDataKind("scripted.velocity", layout)
	if err != nil {
		t.Fatalf("RegisterNamedDataKind: %v", err)
	}
	if id3 == id1 {
		t.Fatalf("distinct names were folded into the same kind")
	}
}

func TestRegistryComponentKindForMissing(t *testing.T) {
	r := NewRegistry()
	dataId := r.DataKindIdFor(NewDataLayout[posVal](StorageTable))
	if _, ok := r.ComponentKindFor(dataId); ok {
		t.Fatalf("ComponentKindFor reported a folded kind before GetOrInsertComponentKind ran")
	}
	r.GetOrInsertComponentKind(NewDataLayout[posVal](StorageTable))
	if _, ok := r.ComponentKindFor(dataId); !ok {
		t.Fatalf("ComponentKindFor missed a kind folded by GetOrInsertComponentKind")
	}
}
