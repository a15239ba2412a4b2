// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"fmt"
	"strings"
)

func Example() {
	myIntFromString, _ := Read(
		context.Background(),
		Default(10, Int64FromString(Env("MY_INT"))),
	)

	fmt.Println(myIntFromString)
	// Output:
	// 10
}

func ExampleMap() {
	brokers := Map(
		ReaderOf("localhost:9092,localhost:9093"),
		func(ctx context.Context, s string) ([]string, error) {
			return strings.Split(s, ","), nil
		},
	)

	v, _ := Read(context.Background(), brokers)

	fmt.Println(len(v))
	fmt.Println(v[1])
	// Output:
	// 2
	// localhost:9093
}
