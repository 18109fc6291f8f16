// Package ingest turns text files into embedded, indexed document chunks.
package ingest
