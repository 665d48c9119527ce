// Package ir provides the foundational types shared by every stage of the
// query engine: literal values, the DataType and Generator catalogs, the
// structured validation error, and the traversal cursor.
//
// All other internal packages import ir; ir imports nothing internal. This
// keeps literals and errors the bottom layer with no circular dependencies.
//
// Key design constraints:
//   - Values are immutable once built; the engine never mutates a tree.
//   - Numbers are never binary floats: non-integral numbers become Decimal.
//   - Object keys are always iterated in sorted order (SortedKeys).
package ir
