// Package html extracts documents from HTML.
//
// Statute pages with section headings (h3 ids such as "t37c01s37-1-101")
// are split into one document per section; other pages yield a single
// document of their visible text.
package html
