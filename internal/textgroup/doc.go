// Package textgroup merges OCR fragments into groups a user can tap and copy.
//
// An OCR engine reports text as many small fragments (words or short lines),
// each with a normalized bounding box. Words printed on one line are more
// useful as a single unit, so this package clusters fragments that sit on the
// same visual line close to each other.
//
// # Proximity
//
// Two fragments are joinable when their boxes overlap vertically by more than
// half their average height and the horizontal gap between them is less than
// one and a half times that height. The rule is symmetric but not transitive.
//
// # Clustering
//
// Cluster returns the connected components of the "joinable" graph, so a chain
// A-B-C ends up in one group even when A and C are far apart. The components do
// not depend on the order of the input.
//
// # Assembly
//
// Assemble orders a component left to right and derives its text and the
// union of its boxes. Right-to-left and vertical scripts are read in the same
// left-to-right order.
package textgroup
