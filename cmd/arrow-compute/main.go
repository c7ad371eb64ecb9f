// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command arrow-compute applies a compute kernel to columns given as
// JSON arrays and prints the result as JSON.
//
// Column types are written as C data interface format strings, for
// example "i" for int32, "tdD" for date32 or "tsu:" for naive
// microsecond timestamps:
//
//	arrow-compute div --checked i '[10, 1]' '[5, 0]'
//	{"format":"i","null_count":1,"values":[2,null]}
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/columnar-io/colarrow/arrow"
	"github.com/columnar-io/colarrow/arrow/array"
	"github.com/columnar-io/colarrow/arrow/cdata"
	"github.com/columnar-io/colarrow/arrow/compute"
	"github.com/columnar-io/colarrow/arrow/memory"
	"github.com/docopt/docopt-go"
	"github.com/goccy/go-json"
)

const usage = `Arrow Compute.
Usage:
  arrow-compute -h | --help
  arrow-compute div [--checked] [--roundtrip] <format> <lhs> <rhs>
  arrow-compute div-scalar [--checked] [--roundtrip] <format> <lhs> <scalar>
  arrow-compute hour [--roundtrip] <format> <values>
  arrow-compute year [--roundtrip] <format> <values>
Options:
  -h --help     Show this screen.
  --checked     Emit nulls instead of failing on division by zero or overflow.
  --roundtrip   Pass inputs and result through C data interface descriptors.`

type command struct {
	mem       memory.Allocator
	dt        arrow.DataType
	roundtrip bool
}

// parseType resolves a C data interface format string.
func parseType(format string) (arrow.DataType, error) {
	return cdata.ImportFormat(format)
}

func (c *command) column(name, values string) (arrow.Array, error) {
	arr, _, err := array.FromJSON(c.mem, c.dt, strings.NewReader(values), array.WithUseNumber())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if !c.roundtrip {
		return arr, nil
	}
	defer arr.Release()
	return roundTrip(arr)
}

// roundTrip exports arr to C descriptors and imports it back.
func roundTrip(arr arrow.Array) (arrow.Array, error) {
	var (
		carr    cdata.CArrowArray
		cschema cdata.CArrowSchema
	)
	if err := cdata.ExportArrowArray(arr, &carr, &cschema); err != nil {
		return nil, err
	}
	_, out, err := cdata.ImportCArray(&carr, &cschema)
	return out, err
}

// scalar decodes a single JSON value of the command type.
func (c *command) scalar(value string) (any, error) {
	arr, err := c.column("<scalar>", "["+value+"]")
	if err != nil {
		return nil, err
	}
	defer arr.Release()
	if arr.Len() != 1 || arr.IsNull(0) {
		return nil, fmt.Errorf("%w: scalar must be a single non null value, got %s", arrow.ErrInvalid, value)
	}
	return arr.(interface{ GetOneForMarshal(int) interface{} }).GetOneForMarshal(0), nil
}

type result struct {
	Format    string          `json:"format"`
	NullCount int             `json:"null_count"`
	Values    json.RawMessage `json:"values"`
}

func (c *command) write(w io.Writer, arr arrow.Array) error {
	if c.roundtrip {
		rt, err := roundTrip(arr)
		if err != nil {
			return err
		}
		defer rt.Release()
		arr = rt
	}

	format, err := cdata.ExportFormat(arr.DataType())
	if err != nil {
		return err
	}

	values, err := json.Marshal(arr)
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(result{Format: format, NullCount: arr.NullN(), Values: values})
}

func run(argv []string, w io.Writer) error {
	var helped bool
	parser := &docopt.Parser{HelpHandler: func(err error, usage string) {
		helped = err == nil
		docopt.PrintHelpOnly(err, usage)
	}}
	opts, err := parser.ParseArgs(usage, argv, "")
	switch {
	case helped:
		return nil
	case err != nil:
		return err
	}

	format, err := opts.String("<format>")
	if err != nil {
		return err
	}
	dt, err := parseType(format)
	if err != nil {
		return err
	}

	roundtrip, _ := opts.Bool("--roundtrip")
	cmd := &command{mem: memory.DefaultAllocator, dt: dt, roundtrip: roundtrip}
	out, err := cmd.execute(compute.WithAllocator(context.Background(), cmd.mem), opts)
	if err != nil {
		return err
	}
	defer out.Release()
	return cmd.write(w, out)
}

// execute runs the kernel selected by opts, reporting arithmetic faults
// of unchecked division as errors.
func (c *command) execute(ctx context.Context, opts docopt.Opts) (out arrow.Array, err error) {
	defer func() {
		if r := recover(); r != nil {
			fault, ok := r.(error)
			if !ok || !errors.Is(fault, compute.ErrArithmeticFault) {
				panic(r)
			}
			out, err = nil, fault
		}
	}()

	if isSet(opts, "hour") || isSet(opts, "year") {
		valuesJSON, _ := opts.String("<values>")
		values, err := c.column("<values>", valuesJSON)
		if err != nil {
			return nil, err
		}
		defer values.Release()
		return extract(ctx, isSet(opts, "hour"), values)
	}

	checked, _ := opts.Bool("--checked")
	arithOpts := compute.ArithmeticOptions{CheckOverflow: checked}

	lhsJSON, _ := opts.String("<lhs>")
	lhs, err := c.column("<lhs>", lhsJSON)
	if err != nil {
		return nil, err
	}
	defer lhs.Release()

	if isSet(opts, "div-scalar") {
		scalarJSON, _ := opts.String("<scalar>")
		s, err := c.scalar(scalarJSON)
		if err != nil {
			return nil, err
		}
		return compute.DivideScalar(ctx, arithOpts, lhs, s)
	}

	rhsJSON, _ := opts.String("<rhs>")
	rhs, err := c.column("<rhs>", rhsJSON)
	if err != nil {
		return nil, err
	}
	defer rhs.Release()
	return compute.Divide(ctx, arithOpts, lhs, rhs)
}

func isSet(opts docopt.Opts, cmd string) bool {
	v, _ := opts.Bool(cmd)
	return v
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("arrow-compute: ")

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}
