// Package utils provides logging helpers shared by the pipeline components.
package utils
