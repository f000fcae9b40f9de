// Command tsengine is a small demo program driving the dispatcher
// end to end against the in-memory reference store.
package main

import (
	"fmt"
	"log"

	"github.com/arloliu/tsengine"
	"github.com/arloliu/tsengine/kvstore"
)

func main() {
	store := kvstore.NewMemStore()
	eng := tsengine.New(store, nil, nil)

	table := []int64{31, 41, 59, 26, 53, 58, 97, 93, 23, 84}
	for i := int64(10); i < 50; i++ {
		v := (i/10)*100 + table[i%10]
		if _, err := eng.Exec("add", []string{"cpu.usage"}, []string{
			fmt.Sprintf("%d", i), "value", fmt.Sprintf("%d", v),
		}); err != nil {
			log.Fatalf("add: %v", err)
		}
	}

	got, err := eng.Exec("range", []string{"cpu.usage"}, []string{
		"10", "50", "AGGREGATION", "10", "avg(value)", "count(value)",
	})
	if err != nil {
		log.Fatalf("range: %v", err)
	}
	fmt.Printf("bucketed cpu.usage: %v\n", got)

	span, err := eng.Exec("span", []string{"cpu.usage"}, nil)
	if err != nil {
		log.Fatalf("span: %v", err)
	}
	fmt.Printf("span: %v\n", span)
}
