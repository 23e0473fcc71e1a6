// Package template loads declarative templates into annoskema schemas.
//
// A template is plain data (YAML or JSON); parsing it never executes code.
// It lists named object types, exactly one of which is the document root:
//
//	name: judgment
//	types:
//	  - name: Judgment
//	    root: true
//	    fields:
//	      - {name: title, type: string, required: true, annotation: true, min_length: 5}
//	      - {name: 基准刑_月, type: integer, min: 0, max: 11, annotation: true}
//	      - name: content_sections
//	        type: list
//	        min_items: 1
//	        items: {ref: Section}
//	  - name: Section
//	    fields:
//	      - {name: heading, type: string}
//	      - {name: verdict, type: enum, values: [有罪, 无罪]}
//
// Field types are string, integer, number, boolean, enum, object and list.
// Objects take either a ref to a named type or inline fields; lists describe
// their elements with items. Templates are fetched from a Source (a directory,
// any fs.FS, or Redis) by identifier.
package template
