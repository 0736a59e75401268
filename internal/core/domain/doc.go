// Package domain holds the types shared by every layer of the store:
// levels and their tables, content-addressed records, urls and
// occurrences, the join paths between levels, settings and errors.
//
// Nothing here touches a database or a file. Only the standard library
// may be imported; every other package depends on domain.
package domain
