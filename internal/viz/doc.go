// Package viz renders PSF models and scene tables for the terminal.
//
//   - [ProfileChart]: ASCII radial-profile chart of a model
//   - [SourceTable]: styled ground-truth table of a generated scene
package viz
