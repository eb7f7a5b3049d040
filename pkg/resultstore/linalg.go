package resultstore

import "math"

// mat3 is a 3x3 matrix in row-major order, the element type of all tensor
// fields written by the solver.
type mat3 [3][3]float64

var identity3 = mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

func matMul(a, b mat3) mat3 {
	var out mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += a[i][k] * b[k][j]
			}
		}
	}
	return out
}

func matTranspose(a mat3) mat3 {
	var out mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = a[j][i]
		}
	}
	return out
}

func matDet(a mat3) float64 {
	return a[0][0]*(a[1][1]*a[2][2]-a[1][2]*a[2][1]) -
		a[0][1]*(a[1][0]*a[2][2]-a[1][2]*a[2][0]) +
		a[0][2]*(a[1][0]*a[2][1]-a[1][1]*a[2][0])
}

func matScale(a mat3, s float64) mat3 {
	var out mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = a[i][j] * s
		}
	}
	return out
}

func matTrace(a mat3) float64 {
	return a[0][0] + a[1][1] + a[2][2]
}

// deviator returns a minus its hydrostatic part.
func deviator(a mat3) mat3 {
	p := matTrace(a) / 3.0
	out := a
	for i := 0; i < 3; i++ {
		out[i][i] -= p
	}
	return out
}

// doubleContraction returns a:b = sum_ij a_ij b_ij.
func doubleContraction(a, b mat3) float64 {
	sum := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum += a[i][j] * b[i][j]
		}
	}
	return sum
}

// symEigen diagonalizes a symmetric matrix with cyclic Jacobi rotations.
// It returns the eigenvalues and a matrix whose columns are the corresponding
// orthonormal eigenvectors. Convergence is quadratic; a handful of sweeps is
// plenty for 3x3 input.
func symEigen(a mat3) ([3]float64, mat3) {
	v := identity3

	for sweep := 0; sweep < 50; sweep++ {
		off := a[0][1]*a[0][1] + a[0][2]*a[0][2] + a[1][2]*a[1][2]
		if off < 1e-28 {
			break
		}
		for p := 0; p < 2; p++ {
			for q := p + 1; q < 3; q++ {
				if math.Abs(a[p][q]) < 1e-300 {
					continue
				}
				theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
				t := 1 / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				if theta < 0 {
					t = -t
				}
				c := 1 / math.Sqrt(t*t+1)
				s := t * c

				rot := identity3
				rot[p][p], rot[q][q] = c, c
				rot[p][q], rot[q][p] = s, -s

				a = matMul(matTranspose(rot), matMul(a, rot))
				v = matMul(v, rot)
			}
		}
	}

	return [3]float64{a[0][0], a[1][1], a[2][2]}, v
}

// symFunc applies a scalar function to a symmetric matrix through its
// eigendecomposition: f(A) = sum_i f(lambda_i) v_i v_i^T.
func symFunc(a mat3, f func(float64) float64) mat3 {
	vals, vecs := symEigen(a)
	var out mat3
	for k := 0; k < 3; k++ {
		fv := f(vals[k])
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				out[i][j] += fv * vecs[i][k] * vecs[j][k]
			}
		}
	}
	return out
}
