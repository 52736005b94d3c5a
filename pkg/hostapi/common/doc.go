// Package common holds the host API vocabulary shared by every contract
// version: entities and their schema, lock state, the logger, themes, runtime
// scopes, the component manifest and the error taxonomy.
//
// Versioned packages (see remotehost/pkg/hostapi/v1) vary only the capability
// surface handed to remote controls; the data shapes defined here stay put.
package common
