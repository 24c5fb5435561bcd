package hubbard_test

import (
	"fmt"
	"log"

	"github.com/fumin/condmat/hubbard"
)

func Example() {
	p := hubbard.DefaultParams(6)
	p.U = 4
	h, err := hubbard.NewHamiltonian(p)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	fmt.Println(h.Dim(), p.Bonds())

	two := hubbard.DefaultParams(2)
	h2, err := hubbard.NewHamiltonian(two)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	g, err := h2.GroundState()
	if err != nil {
		log.Fatalf("%+v", err)
	}
	fmt.Printf("%.4f\n", g.Energy)

	// Output:
	// 400 [[0 1] [1 2] [2 3] [3 4] [4 5] [5 0]]
	// -2.0000
}
