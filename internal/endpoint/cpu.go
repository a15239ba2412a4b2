// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/z5labs/kafkahello/internal/instrument"
	"github.com/z5labs/kafkahello/internal/workload"
	"github.com/z5labs/kafkahello/rest"
)

func durationParam() rest.OperationOption {
	return rest.QueryParam(
		"durationMs",
		rest.Description("How long to run for in milliseconds"),
		rest.DefaultInt(1000),
	)
}

func payloadParam() rest.OperationOption {
	return rest.QueryParam(
		"payloadKb",
		rest.Description("Size of the hashed payload in KiB"),
		rest.DefaultInt(1),
	)
}

// BusySpin spins a CPU for durationMs milliseconds.
func BusySpin(op *instrument.Operation) rest.ApiOption {
	return textGet(
		"/test/cpu/busy-spin",
		rest.TextProducerFunc(func(ctx context.Context) (string, error) {
			ms := rest.QueryInt(ctx, "durationMs")

			op.Time(ctx, workload.KindBusySpin, func() error {
				workload.BusySpin(millis(ms))
				return nil
			})
			return fmt.Sprintf("Busy-spin completed in %d ms", ms), nil
		}),
		rest.Summary("Spin a CPU"),
		durationParam(),
	)
}

type hashHandler struct {
	op        *instrument.Operation
	algorithm func(context.Context) string
}

// HashSHA256 repeatedly computes SHA-256 digests for durationMs milliseconds.
func HashSHA256(op *instrument.Operation) rest.ApiOption {
	h := &hashHandler{
		op: op,
		algorithm: func(context.Context) string {
			return workload.SHA256
		},
	}

	return textGet(
		"/test/cpu/hash-sha256",
		h,
		rest.Summary("Hash with SHA-256"),
		durationParam(),
		payloadParam(),
	)
}

// Hash repeatedly computes digests with the requested algorithm.
func Hash(op *instrument.Operation) rest.ApiOption {
	h := &hashHandler{
		op: op,
		algorithm: func(ctx context.Context) string {
			return rest.QueryString(ctx, "algorithm")
		},
	}

	return textGet(
		"/test/cpu/hash",
		h,
		rest.Summary("Hash with a chosen algorithm"),
		rest.QueryParam(
			"algorithm",
			rest.Description("One of sha256, sha512, sha3-256 or blake2b-256"),
			rest.DefaultString(workload.SHA256),
		),
		durationParam(),
		payloadParam(),
	)
}

// Produce implements the [rest.TextProducer] interface.
//
// Workload failures are reported in the body rather than as a failed request.
func (h *hashHandler) Produce(ctx context.Context) (string, error) {
	alg := h.algorithm(ctx)
	ms := rest.QueryInt(ctx, "durationMs")
	kb := rest.QueryInt(ctx, "payloadKb")

	var digests int
	err := h.op.Time(ctx, workload.KindHash, func() error {
		var err error
		digests, err = workload.Hash(alg, millis(ms), kb)
		return err
	})
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	return fmt.Sprintf("Computed %d %s digests of %d KB in %d ms", digests, alg, kb, ms), nil
}

// SortArrays sorts arrays of pseudo-random integers.
func SortArrays(op *instrument.Operation) rest.ApiOption {
	return textGet(
		"/test/cpu/sort-arrays",
		rest.TextProducerFunc(func(ctx context.Context) (string, error) {
			arrays := rest.QueryInt(ctx, "arrays")
			size := rest.QueryInt(ctx, "size")

			start := time.Now()
			op.Time(ctx, workload.KindSort, func() error {
				workload.SortArrays(arrays, size)
				return nil
			})
			return fmt.Sprintf("Sorted %d arrays of %d integers in %d ms", arrays, size, elapsedMillis(start)), nil
		}),
		rest.Summary("Sort arrays"),
		rest.QueryParam("arrays", rest.Description("Number of arrays"), rest.DefaultInt(10)),
		rest.QueryParam("size", rest.Description("Length of every array"), rest.DefaultInt(10000)),
	)
}

// MatrixMultiply multiplies pseudo-random square matrices.
func MatrixMultiply(op *instrument.Operation) rest.ApiOption {
	return textGet(
		"/test/cpu/matrix-multiply",
		rest.TextProducerFunc(func(ctx context.Context) (string, error) {
			n := rest.QueryInt(ctx, "n")
			reps := rest.QueryInt(ctx, "reps")

			var checksum float64
			start := time.Now()
			op.Time(ctx, workload.KindMatrixMultiply, func() error {
				checksum = workload.MatrixMultiply(n, reps)
				return nil
			})
			return fmt.Sprintf(
				"Multiplied %dx%d matrices %d times in %d ms (checksum=%.4f)",
				n, n, reps, elapsedMillis(start), checksum,
			), nil
		}),
		rest.Summary("Multiply matrices"),
		rest.QueryParam("n", rest.Description("Matrix dimension"), rest.DefaultInt(100)),
		rest.QueryParam("reps", rest.Description("Number of products"), rest.DefaultInt(5)),
	)
}

// Sieve counts the primes up to limit.
func Sieve(op *instrument.Operation) rest.ApiOption {
	return textGet(
		"/test/cpu/sieve",
		rest.TextProducerFunc(func(ctx context.Context) (string, error) {
			limit := rest.QueryInt(ctx, "limit")

			var primes int
			op.Time(ctx, workload.KindSieve, func() error {
				primes = workload.Sieve(limit)
				return nil
			})
			return fmt.Sprintf("Found %d primes up to %d", primes, limit), nil
		}),
		rest.Summary("Count primes"),
		rest.QueryParam("limit", rest.Description("Largest candidate"), rest.DefaultInt(1000000)),
	)
}
