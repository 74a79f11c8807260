// Package classfile decodes and re-encodes compiled JVM class files.
//
// Decoding keeps every structural element as it was read: constant pool
// entries, fields, methods and attributes are retained as raw payloads so
// that Encode(Decode(b)) reproduces b exactly. Callers mutate only what
// they mean to change, typically a single method's Code attribute built
// with an Assembler, and append new constant pool entries through the
// ConstantPool helpers.
package classfile
