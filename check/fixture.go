// SPDX-License-Identifier: MIT

package check

import "github.com/katalvlaran/sparsegraph/sparse"

// FixtureSize is the number of DOFs spanned by Fixture.
const FixtureSize = 40

// Fixture returns a fresh copy of the 31-element mesh with 4 DOFs per element
// over DOFs 0..39, the common test input of every package in this module.
// Its reference multiplicities are pinned by this package's tests.
func Fixture() [][]sparse.Index {
	return [][]sparse.Index{
		{19, 11, 7, 39}, {33, 27, 22, 9}, {11, 2, 3, 6}, {8, 26, 3, 22},
		{0, 26, 5, 31}, {1, 18, 35, 12}, {3, 36, 23, 7}, {16, 8, 18, 15},
		{16, 33, 10, 26}, {25, 2, 18, 31}, {33, 26, 4, 6}, {19, 21, 22, 7},
		{9, 37, 29, 14}, {18, 19, 14, 39}, {24, 34, 37, 7}, {16, 9, 29, 14},
		{17, 18, 11, 4}, {16, 33, 28, 37}, {37, 26, 11, 5}, {8, 26, 35, 14},
		{24, 4, 30, 15}, {16, 17, 12, 6}, {32, 25, 35, 28}, {24, 25, 14, 1},
		{24, 35, 5, 6}, {28, 12, 38, 15}, {8, 18, 35, 6}, {28, 31, 22, 39},
		{1, 28, 13, 7}, {17, 10, 36, 7}, {25, 14, 30, 9},
	}
}
