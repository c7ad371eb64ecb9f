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

// Package cdata implements the Arrow C data interface.
//
// CArrowArray and CArrowSchema are the C structs declared in abi.h, so
// arrays can be handed across a foreign boundary without copying.
// ExportArrowArray fills a descriptor pair from an arrow.Array, holding a
// reference to the array's memory through a cgo.Handle kept in
// private_data until the descriptor is released. ImportCArray consumes a
// descriptor pair and builds an arrow.Array whose buffers point at the
// producer's memory, calling the producer's release callback once the
// last imported buffer has been released.
//
// The importer itself is written against the ArrayHandle interface, so
// any source able to describe an array buffer by buffer can be imported
// with ImportArray. ImportArray, ExportBuffers and the format helpers do
// not need cgo.
//
// Only the fixed width primitive, temporal and union types are supported.
package cdata
