// Package config provides configuration structures and utilities for csvharvest.
// It defines where reports are harvested from, where downloaded files and the
// seen store live, and which extra column aliases the normalizer accepts.
package config
