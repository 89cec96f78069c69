package helper

import (
	"reflect"
	"testing"
)

func TestHelper_StringInSlice(t *testing.T) {
	type stringTest struct {
		input    string
		expected bool
	}

	var stringTests = []stringTest{
		{"eu-central-1a", true}, {"eu-west-1a", false},
	}

	list := []string{"eu-central-1a", "eu-central-1b"}

	for _, test := range stringTests {
		actual := StringInSlice(test.input, list)

		if actual != test.expected {
			t.Fatalf("expected %v got %v", test.expected, actual)
		}
	}
}

func TestHelper_DedupStrings(t *testing.T) {
	input := []string{"r6i.32xlarge", "r7i.48xlarge", "r6i.32xlarge", "", "r6id.32xlarge"}
	expected := []string{"r6i.32xlarge", "r7i.48xlarge", "r6id.32xlarge"}

	actual := DedupStrings(input)
	if !reflect.DeepEqual(actual, expected) {
		t.Fatalf("expected %v got %v", expected, actual)
	}
}

func TestHelper_Max(t *testing.T) {

	expected := 13.12

	max := Max(13.12, 2.01, 6.4, 13.11, 1.01, 0.11)
	if max != expected {
		t.Fatalf("expected %v got %v", expected, max)
	}
}

func TestHelper_Min(t *testing.T) {

	expected := 1.01

	min := Min(13.12, 2.01, 6.4, 13.11, 1.01, 1.02)
	if min != expected {
		t.Fatalf("expected %v got %v", expected, min)
	}
}

func TestHelper_Avg(t *testing.T) {

	expected := 5.0

	avg := Avg([]float64{2, 4, 6, 8})
	if avg != expected {
		t.Fatalf("expected %v got %v", expected, avg)
	}

	if zero := Avg(nil); zero != 0 {
		t.Fatalf("expected 0 got %v", zero)
	}
}

func TestHelper_HasObjectChanged(t *testing.T) {
	type scaleTarget struct {
		Shape string
		Zone  string
		Tier  int
	}

	targetA := &scaleTarget{Shape: "r6i.32xlarge", Zone: "eu-central-1a", Tier: 15}
	targetB := &scaleTarget{Shape: "r6i.32xlarge", Zone: "eu-central-1a", Tier: 15}

	change, err := HasObjectChanged(targetA, targetB)
	if err != nil {
		t.Fatal(err)
	}

	if change {
		t.Fatalf("expected false but got %v", change)
	}

	targetB.Zone = "eu-central-1b"
	change, err = HasObjectChanged(targetA, targetB)
	if err != nil {
		t.Fatal(err)
	}

	if !change {
		t.Fatalf("expected true but got %v", change)
	}
}
