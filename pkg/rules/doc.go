// Package rules provides the tagged-variant factory that turns rule
// definitions (a type discriminator plus a settings bag) into concrete
// engine.Rule values, and the embeddable Base that supplies name and
// enabled semantics to rule implementations.
package rules
