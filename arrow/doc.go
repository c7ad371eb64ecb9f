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


/*
Package arrow provides the foundation of a columnar in-memory array library.

The fundamental data structure is an Array, which holds a sequence of values of
the same type. An array consists of memory holding the data and an additional
validity bitmap that indicates if the corresponding entry in the array is valid
(not null). If the array has no null entries, it is possible to omit this bitmap.

Arrays can be moved across process or language boundaries without copying
through the C data interface descriptors of package cdata, and transformed
elementwise with the kernels of package compute.
*/
package arrow
