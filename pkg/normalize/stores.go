package normalize

import (
	"github.com/tidwall/gjson"

	"github.com/imartinezt/logistica-front/pkg/prediction"
)

func parseStore(v gjson.Result) prediction.Store {
	if v.Type == gjson.String {
		return prediction.Store{Name: label(v)}
	}
	s := prediction.Store{
		ID:         str(v, "tienda_id", "ubicacion_id", "store_id", "id"),
		Name:       str(v, "nombre_ubicacion", "nombre_tienda", "nombre", "name"),
		Stock:      integer(v, "stock_disponible", "stock"),
		Allocated:  integer(v, "cantidad_asignada", "cantidad", "unidades"),
		DistanceKm: num(v, "distancia_km"),
		UnitPrice:  num(v, "precio_unitario", "precio_tienda", "precio"),
		TotalPrice: num(v, "precio_total"),
		Local:      boolean(v, "es_local", "local"),
	}
	if s.Name == "" {
		s.Name = s.ID
	}
	return s
}

// parseStores reads store references. HasStock is left false: the source
// lists these come from never decide stock.
func parseStores(items []gjson.Result) []prediction.Store {
	var out []prediction.Store
	for _, it := range items {
		if s := parseStore(it); s.Key() != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseAllocation reads an allocation list. Every entry holds stock.
func parseAllocation(items []gjson.Result) []prediction.Store {
	out := parseStores(items)
	for i := range out {
		out[i].HasStock = true
	}
	return out
}

// sameStore matches by identifier when both sides carry one, otherwise by
// name, tolerating lists that reference a store by id where others use its
// name.
func sameStore(a, b prediction.Store) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	ka, kb := a.Key(), b.Key()
	return ka != "" && (ka == kb || ka == b.Name || a.Name == kb)
}

func indexOf(stores []prediction.Store, s prediction.Store) int {
	for i := range stores {
		if sameStore(stores[i], s) {
			return i
		}
	}
	return -1
}

// mergeStores builds the final store list: candidates first, then allocated
// stores missing from the candidates, then advisory references not yet seen.
// A store holds stock iff it matches an allocated entry.
func mergeStores(candidates, allocated, advisory []prediction.Store) []prediction.Store {
	var stores []prediction.Store
	for _, c := range candidates {
		if indexOf(stores, c) < 0 {
			stores = append(stores, c)
		}
	}

	for _, a := range allocated {
		i := indexOf(stores, a)
		if i < 0 {
			stores = append(stores, a)
			continue
		}
		stores[i] = withAllocation(stores[i], a)
	}

	for _, s := range advisory {
		if indexOf(stores, s) < 0 {
			s.HasStock = false
			stores = append(stores, s)
		}
	}
	return stores
}

// withAllocation marks c as stocked and fills fields the candidate entry left
// empty from the allocation entry a.
func withAllocation(c, a prediction.Store) prediction.Store {
	c.HasStock = true
	c.Allocated += a.Allocated
	if c.ID == "" {
		c.ID = a.ID
	}
	if c.Name == "" || c.Name == c.ID {
		if a.Name != "" {
			c.Name = a.Name
		}
	}
	if c.Stock == 0 {
		c.Stock = a.Stock
	}
	if c.DistanceKm == 0 {
		c.DistanceKm = a.DistanceKm
	}
	if c.UnitPrice == 0 {
		c.UnitPrice = a.UnitPrice
	}
	if c.TotalPrice == 0 {
		c.TotalPrice = a.TotalPrice
	}
	c.Local = c.Local || a.Local
	return c
}
