// Package env resolves variable references in request files.
//
// It provides:
//   - Substitution of {{name}}, ${name}, and {{$func args}} references
//   - Named environments loaded from reqfile.yaml, with a $shared base
//   - Dotenv file loading
//   - Reference extraction and circular-definition detection
//   - A validation pass over parsed request files
//
// Resolution never fails: references that cannot be satisfied keep their
// literal text, and a WarnFunc hook reports them.
package env
