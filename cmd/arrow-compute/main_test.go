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

package main

import (
	"bytes"
	"testing"

	"github.com/columnar-io/colarrow/arrow"
	"github.com/columnar-io/colarrow/arrow/compute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"div checked", []string{"div", "--checked", "i", "[10, 1]", "[5, 0]"},
			`{"format":"i","null_count":1,"values":[2,null]}`},
		{"div roundtrip", []string{"div", "--roundtrip", "l", "[9, null, -8]", "[3, 1, 2]"},
			`{"format":"l","null_count":1,"values":[3,null,-4]}`},
		{"div scalar", []string{"div-scalar", "--roundtrip", "C", "[255, null, 7]", "7"},
			`{"format":"C","null_count":1,"values":[36,null,1]}`},
		{"div scalar checked", []string{"div-scalar", "--checked", "s", "[1, 2]", "0"},
			`{"format":"s","null_count":2,"values":[null,null]}`},
		{"hour", []string{"hour", "tts", "[3661, null, 86399]"},
			`{"format":"I","null_count":1,"values":[1,null,23]}`},
		{"year", []string{"year", "--roundtrip", "tdD", "[18690, -1]"},
			`{"format":"i","null_count":0,"values":[2021,1969]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, run(tt.args, &out))
			assert.JSONEq(t, tt.want, out.String())
		})
	}
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer

	err := run([]string{"div", "i", "[1]", "[0]"}, &out)
	assert.ErrorIs(t, err, compute.ErrArithmeticFault)

	err = run([]string{"div", "i", "[1]", "[1, 2]"}, &out)
	assert.ErrorIs(t, err, arrow.ErrInvalid)

	err = run([]string{"hour", "tss:UTC", "[1]"}, &out)
	assert.ErrorIs(t, err, arrow.ErrNotImplemented)

	err = run([]string{"year", "+w:4", "[1]"}, &out)
	assert.ErrorIs(t, err, arrow.ErrNotImplemented)

	err = run([]string{"div-scalar", "f", "[1]", "null"}, &out)
	assert.ErrorIs(t, err, arrow.ErrInvalid)

	err = run([]string{"div", "i", "[1]", "[true]"}, &out)
	assert.Error(t, err)

	assert.Zero(t, out.Len())
}

func TestParseType(t *testing.T) {
	dt, err := parseType("tsu:")
	require.NoError(t, err)
	assert.Equal(t, arrow.TIMESTAMP, dt.ID())
	assert.False(t, dt.(*arrow.TimestampType).HasTimeZone())

	dt, err = parseType("+us:0,1")
	require.Error(t, err, "union formats need child schemas")
	assert.Nil(t, dt)
}
