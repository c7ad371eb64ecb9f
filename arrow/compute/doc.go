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

// Package compute implements elementwise kernels over primitive arrays.
//
// The engine functions Unary, UnaryChecked, Binary and BinaryChecked
// apply a scalar function to every valid slot of their inputs and build
// a new array of an explicitly given output type. Validity follows the
// inputs: a slot of a binary result is valid only when both inputs are
// valid, and the checked variants additionally null every slot for which
// the function reports no result.
//
// The division and temporal field extraction kernels are built on this
// engine. Memory for results is taken from the allocator attached to the
// context with WithAllocator, or memory.DefaultAllocator.
package compute
